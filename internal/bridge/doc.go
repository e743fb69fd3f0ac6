// Package bridge mirrors the keyer configuration store onto MQTT.
//
// The bridge publishes every parameter as a retained state topic and
// subscribes to the set command topics, so remote consoles always see
// the current configuration and can change it without a direct
// connection to the daemon.
//
// Change detection rides on the store's generation counter: the poll
// loop loads one atomic word per tick and only walks the parameter
// list when a write actually happened. Set commands go through the
// console registry, so remote writes get the same validation, range
// clamping, and enum checking as local ones.
//
// # Performance Characteristics
//
//   - Idle poll cost: one atomic load per interval
//   - Change publication: O(parameters) formatted-value comparison
//   - Set command latency: one registry write plus one retained publish
//
// # Usage
//
//	b, err := bridge.New(bridge.Options{
//	    Registry:   registry,
//	    Store:      st,
//	    MQTTClient: adapter,
//	    TopicBase:  cfg.MQTT.TopicBase,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := b.Start(ctx); err != nil {
//	    return err
//	}
//	defer b.Stop()
package bridge
