package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/mockgateway"
	"e2egateway/internal/util/log"
)

func main() {
	var (
		addr     string
		identity string
		secret   string
		credits  int
		peers    []string
		dev      bool
	)
	cmd := &cobra.Command{
		Use:          "mockgateway",
		Short:        "Run an in-memory message gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := log.New("info", dev)
			if err != nil {
				return err
			}
			log.Set(l)
			defer log.Sync()

			srv := mockgateway.New(mockgateway.Options{
				Identity: domain.Identity(identity),
				Secret:   secret,
				Credits:  credits,
				Logger:   l,
			})
			for _, p := range peers {
				id, key, caps, err := parsePeer(p)
				if err != nil {
					return err
				}
				srv.AddIdentity(id, key, caps...)
				log.Info("registered identity", zap.String("id", string(id)), zap.String("fingerprint", crypto.Fingerprint(key)))
			}

			log.Info("mock gateway listening", zap.String("addr", addr), zap.String("identity", identity))
			return http.ListenAndServe(addr, srv.Handler())
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.StringVar(&identity, "identity", "*TESTGW1", "gateway identity accepted by the server")
	f.StringVar(&secret, "secret", "secret", "API secret accepted by the server")
	f.IntVar(&credits, "credits", mockgateway.DefaultCredits, "initial message credits")
	f.StringArrayVar(&peers, "peer", nil, "identity to register, ID=public:<hex>[=cap,cap]")
	f.BoolVar(&dev, "dev", false, "human readable log output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parsePeer reads ID=public:<hex>, optionally followed by =text,file.
func parsePeer(s string) (domain.Identity, domain.PublicKey, []string, error) {
	parts := strings.SplitN(s, "=", 3)
	if len(parts) < 2 {
		return "", domain.PublicKey{}, nil, fmt.Errorf("peer %q: want ID=public:<hex>", s)
	}
	id := domain.Identity(parts[0])
	if !id.Valid() {
		return "", domain.PublicKey{}, nil, fmt.Errorf("peer %q: invalid identity", s)
	}
	key, err := crypto.DecodePublicKey(parts[1])
	if err != nil {
		return "", domain.PublicKey{}, nil, fmt.Errorf("peer %q: %w", s, err)
	}
	var caps []string
	if len(parts) == 3 && parts[2] != "" {
		caps = strings.Split(parts[2], ",")
	}
	return id, key, caps, nil
}
