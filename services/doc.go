// Package services exposes the wallet's host operations as typed calls.
//
// Each operation addresses one bridge function inside the host. When the
// wallet runs embedded, calls go through the bridge client with the
// operation's timeout; otherwise they are answered by an in-memory MockStore
// so the wallet can run without a native shell.
//
//	svc := services.New(client, services.WithEmbed(true))
//	docs, err := svc.GetDocuments(ctx)
package services
