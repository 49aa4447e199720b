// Package gateway provides the HTTP front of the gateway.
//
// The Gateway owns a gin engine and a single HTTP listener and moves
// through a small lifecycle (stopped, starting, running, stopping). It
// serves three endpoints:
//
//   - GET /              a fixed welcome text
//   - GET /health        a health snapshot as JSON
//   - ANY /proxy/*path   routed through the route table to an upstream
//
// # Usage
//
//	gw, err := gateway.New(cfg, table, dispatcher, collector,
//	    gateway.WithLogger(logger),
//	    gateway.WithMetrics(metrics),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := gw.Start(ctx); err != nil {
//	    return err
//	}
//	defer gw.Stop(ctx)
package gateway
