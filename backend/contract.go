package backend

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ruteri/secret-dns/interfaces"
)

const domainPrefix = "domain_name."

var (
	ErrUnknownFunction = errors.New("unknown contract function")
	ErrDomainNotFound  = errors.New("domain not registered")
)

type domainInfo struct {
	Domain string
	Owner  string
	Target string
}

// NameRegistryContract is the state machine of the name registry secret
// contract. It is not safe for concurrent use; the engine serialises calls.
type NameRegistryContract struct {
	state map[string]domainInfo
}

func NewNameRegistryContract() *NameRegistryContract {
	return &NameRegistryContract{state: make(map[string]domainInfo)}
}

// Execute runs function with decoded args and returns the value to encode as
// the task output along with its ABI type. An error means the execution failed
// and no state was changed.
func (c *NameRegistryContract) Execute(function string, args []any) (any, interfaces.TypeTag, error) {
	switch function {
	case "register":
		domain, registrant, err := stringArgs2(function, args)
		if err != nil {
			return nil, "", err
		}
		return big.NewInt(int64(c.register(domain, registrant))), interfaces.TypeInt256, nil

	case "set_target":
		if len(args) != 3 {
			return nil, "", fmt.Errorf("set_target takes 3 arguments, got %d", len(args))
		}
		domain, ok1 := args[0].(string)
		target, ok2 := args[1].(string)
		registrant, ok3 := args[2].(string)
		if !ok1 || !ok2 || !ok3 {
			return nil, "", errors.New("set_target takes string arguments")
		}
		code, err := c.setTarget(domain, target, registrant)
		if err != nil {
			return nil, "", err
		}
		return big.NewInt(int64(code)), interfaces.TypeInt256, nil

	case "resolve":
		if len(args) != 1 {
			return nil, "", fmt.Errorf("resolve takes 1 argument, got %d", len(args))
		}
		domain, ok := args[0].(string)
		if !ok {
			return nil, "", errors.New("resolve takes a string argument")
		}
		return c.resolve(domain), interfaces.TypeString, nil

	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}
}

func (c *NameRegistryContract) register(domain, registrant string) interfaces.StatusCode {
	key := domainPrefix + domain
	if _, exists := c.state[key]; exists {
		return interfaces.StatusAlreadyRegistered
	}

	c.state[key] = domainInfo{Domain: domain, Owner: registrant, Target: interfaces.UnsetTarget}
	return interfaces.StatusNone
}

// setTarget fails the execution for unregistered domains.
func (c *NameRegistryContract) setTarget(domain, target, registrant string) (interfaces.StatusCode, error) {
	key := domainPrefix + domain
	info, exists := c.state[key]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
	}

	if info.Owner != registrant {
		return interfaces.StatusUnauthorized, nil
	}

	info.Target = target
	c.state[key] = info
	return interfaces.StatusNone, nil
}

func (c *NameRegistryContract) resolve(domain string) string {
	info, exists := c.state[domainPrefix+domain]
	if !exists {
		return ""
	}
	return info.Target
}

func stringArgs2(function string, args []any) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("%s takes 2 arguments, got %d", function, len(args))
	}
	a, ok1 := args[0].(string)
	b, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("%s takes string arguments", function)
	}
	return a, b, nil
}
