// Package bridge provides awaitable request-response calls over the host's event channel.
//
// An embedding host exposes a fire-and-forget messaging entry point and answers
// asynchronously through platform events. The bridge package turns that into a
// conventional call/response API:
//
//   - Every call gets a correlation id (a random UUID unless the caller supplies one)
//   - The call is registered in the pending-call table before the message is posted
//   - A matching response event settles the call exactly once
//   - A per-call timer rejects calls the host never answers
//   - Navigation events bypass the table and replace the current route
//
// Basic usage:
//
//	client, err := bridge.NewClient(host, bridge.WithNavigator(nav))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	data, err := client.Request(ctx, "dashboard", "getDocuments", nil)
//	if errors.Is(err, contracts.ErrTimeout) {
//	    // the host did not answer in time
//	}
//
// Timeouts are best effort: the host is never told to abandon the work and a
// late answer is dropped because its id no longer has a table entry.
package bridge
