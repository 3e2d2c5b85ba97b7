package domain

import "regexp"

// Identity is an 8-character gateway or user identity, e.g. ECHOECHO or *MYGATE1.
type Identity string

var identityRE = regexp.MustCompile(`^[0-9A-Z*][0-9A-Z]{7}$`)

// Valid reports whether id has the expected shape.
func (id Identity) Valid() bool { return identityRE.MatchString(string(id)) }

// IsGateway reports whether id belongs to a gateway account (leading '*').
func (id Identity) IsGateway() bool { return len(id) > 0 && id[0] == '*' }

func (id Identity) String() string { return string(id) }
