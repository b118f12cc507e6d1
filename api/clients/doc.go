/*
Package clients provides a Go client for the secret-dns HTTP API.

NameServiceClient implements both interfaces.NameService, with its uniform
false and "" failure sentinels, and interfaces.NameRegistry, which keeps
registry status codes apart from transport errors:

	client := clients.NewNameServiceClient("http://localhost:8080", 2*time.Minute, log)
	status, err := client.RegisterStatus(ctx, "example", "alice")
	if err == nil && status == interfaces.StatusAlreadyRegistered {
	    // someone else owns the name
	}

Error responses are returned as *HTTPError, which unwraps to
interfaces.ErrNotReady, interfaces.ErrTimeout and friends where the status
code identifies them.

MockNameService is a testify mock of interfaces.NameRegistry.
*/
package clients
