/*
Package nameservice registers, updates and resolves names in the secret name
registry contract.

A Connection gates access to the task backend: it is dialled once in the
background and every Client operation fails immediately with
interfaces.ErrNotReady until the dial succeeded. Each operation runs one
submit, confirm and decode cycle through tasks.Invoker.

	conn := nameservice.NewConnection(log)
	conn.Connect(ctx, dial)
	client := nameservice.NewClient(conn, abicodec.New(), cache.New(cache.Config{}, m), cfg, log, m)
	ok := client.Register(ctx, "example", "alice")

Resolutions are cached until the target changes through the same Client.
*/
package nameservice
