package principal

import "github.com/gin-gonic/gin"

type Kind int           // principal kind (operator|integration)
type CredentialType int // principal credential type (login|session|apikey)

// Principal is whoever a request is acting for.
type Principal struct {
	ID             string // configured username for operators, "apikey" for integrations
	PrincipalType  Kind
	CredentialType CredentialType
}

const (
	Operator    Kind = iota // the configured NVR user
	Integration             // a client holding the API key
)

const (
	Login   CredentialType = iota // username/password on POST /login
	Session                       // cookie-based session
	APIKey                        // API key in the request path
)

func (k Kind) String() string {
	switch k {
	case Operator:
		return "operator"
	case Integration:
		return "integration"
	default:
		return "unknown"
	}
}

func (a CredentialType) String() string {
	switch a {
	case Login:
		return "login"
	case Session:
		return "session"
	case APIKey:
		return "apikey"
	default:
		return "unknown"
	}
}

const contextKey = "nvr.principal"

// Set records who the request acts for. Auth middleware calls it once.
func Set(c *gin.Context, p *Principal) { c.Set(contextKey, p) }

// Get returns the principal recorded by Set, or nil for anonymous requests.
func Get(c *gin.Context) *Principal {
	p, _ := c.Value(contextKey).(*Principal)
	return p
}
