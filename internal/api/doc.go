// Package api implements the HTTP REST API and WebSocket server for keyerd.
//
// This package provides:
//   - REST endpoints for parameter read/write, persistence, and presets
//   - WebSocket hub broadcasting parameter changes as they happen
//   - Optional JWT bearer authentication (HS256)
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - TLS support for deployments outside the shack
//
// # Architecture
//
// The API server sits between user interfaces (the web UI, logging
// software, scripts) and the in-memory parameter store. Writes go
// through the console registry, so the API gets the same validation
// as the serial console and MQTT remotes. The WebSocket change feed
// rides on the store's generation counter: one atomic load per poll
// tick, a full walk only when something actually changed.
//
// # Security
//
// With an empty JWT secret the API is open, which suits a keyer on a
// trusted shack network. Configuring security.jwt.secret switches
// every route except /health to bearer-token auth; WebSocket clients
// pass the same token via the "token" query parameter because
// browsers cannot set headers on WebSocket upgrades.
//
// # Usage
//
//	server, err := api.New(api.Deps{
//	    Config:   cfg.API,
//	    WS:       cfg.WebSocket,
//	    Security: cfg.Security,
//	    Logger:   log,
//	    Registry: registry,
//	    Store:    st,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := server.Start(ctx); err != nil {
//	    return err
//	}
//	defer server.Close()
package api
