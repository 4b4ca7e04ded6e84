package model

import (
	"fmt"
	"strings"
	"time"
)

// ClientType is the closed set of client classifications that drive which
// compliance subtrees a workspace gets.
type ClientType string

const (
	TypeSelfEmployed   ClientType = "Self-Employed"
	TypeLandlord       ClientType = "Landlord"
	TypeLimitedCompany ClientType = "Limited Company"
	TypeOther          ClientType = "Other Client"
)

func ParseClientType(raw string) (ClientType, error) {
	switch strings.TrimSpace(raw) {
	case string(TypeSelfEmployed):
		return TypeSelfEmployed, nil
	case string(TypeLandlord):
		return TypeLandlord, nil
	case string(TypeLimitedCompany):
		return TypeLimitedCompany, nil
	case string(TypeOther), "Other":
		return TypeOther, nil
	}

	return "", fmt.Errorf("unknown client type %q", raw)
}

// ServiceFlags selects which service branches exist under a workspace.
// Directors is meaningful only for Limited Company clients.
type ServiceFlags struct {
	Bookkeeping bool `json:"bookkeeping"`
	VAT         bool `json:"vat"`
	PAYE        bool `json:"paye"`
	MTD         bool `json:"mtd"`
	Extra       bool `json:"extra"`
	Directors   int  `json:"directors"`
}

// Normalize applies the business rules that hold regardless of caller
// input: at least one director, and MTD is mutually exclusive with
// Limited Company.
func (f ServiceFlags) Normalize(clientType ClientType) ServiceFlags {
	if f.Directors < 1 {
		f.Directors = 1
	}
	if clientType == TypeLimitedCompany {
		f.MTD = false
	}

	return f
}

// Tag renders the one-line service summary stored in Client Info.txt.
func (f ServiceFlags) Tag(clientType ClientType) string {
	yn := func(b bool) string {
		if b {
			return "Y"
		}
		return "N"
	}

	tag := fmt.Sprintf("%s | BK:%s | VAT:%s | PAYE:%s | MTD:%s | EXTRA:%s",
		clientType, yn(f.Bookkeeping), yn(f.VAT), yn(f.PAYE), yn(f.MTD), yn(f.Extra))
	if clientType == TypeLimitedCompany {
		tag += fmt.Sprintf(" | DIR:%d", f.Directors)
	}

	return tag
}

// Workspace is the root directory and subtree belonging to one client.
type Workspace struct {
	ID        string       `json:"id"`
	Type      ClientType   `json:"type"`
	Flags     ServiceFlags `json:"flags"`
	CreatedAt time.Time    `json:"created_at"`
}
