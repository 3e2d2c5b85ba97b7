// Package validate wraps a shared validator instance with the client's
// custom tags:
//
//   - identity: an 8-character identity ([0-9A-Z*][0-9A-Z]{7})
//   - gateway_identity: an identity with the leading '*' of gateway accounts
//   - public_key / private_key: "public:<hex>" / "private:<hex>" strings
package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
)

var (
	once sync.Once
	v    *validator.Validate
)

// V returns the shared validator.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		_ = v.RegisterValidation("identity", func(fl validator.FieldLevel) bool {
			return domain.Identity(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("gateway_identity", func(fl validator.FieldLevel) bool {
			id := domain.Identity(fl.Field().String())
			return id.Valid() && id.IsGateway()
		})
		_ = v.RegisterValidation("public_key", func(fl validator.FieldLevel) bool {
			_, err := crypto.DecodePublicKey(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("private_key", func(fl validator.FieldLevel) bool {
			_, err := crypto.DecodePrivateKey(fl.Field().String())
			return err == nil
		})
	})
	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error { return V().Struct(s) }

// Var validates a single value against tag.
func Var(field any, tag string) error { return V().Var(field, tag) }
