// Package mqtt provides MQTT client connectivity for keyerd.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// keyerd uses MQTT as its remote-control surface. Every configuration
// parameter is mirrored to a retained state topic, and remote consoles
// write back through the set command topics. The broker decouples the
// daemon from whatever is driving it (logging software, station
// automation, a phone app).
//
//	keyerd ↔ MQTT Broker ↔ remote consoles / automation
//
// Topic layout (dots in parameter paths become topic levels):
//
//	<base>/param/<family>/<name>   retained parameter state
//	<base>/set/<family>/<name>     parameter set commands
//	<base>/status                  daemon online/offline (LWT target)
//	<base>/generation              store generation counter
//	<base>/preset/active           active preset slot
//	<base>/meta                    JSON parameter description
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Base: cfg.MQTT.TopicBase}
//
//	// Subscribe to all set commands
//	err = client.Subscribe(topics.AllParamSets(), 1,
//	    func(topic string, payload []byte) error {
//	        path, ok := topics.SetTopicToPath(topic)
//	        if !ok {
//	            return nil
//	        }
//	        return registry.Set(path, string(payload))
//	    })
//
//	// Publish parameter state
//	client.PublishRetained(topics.ParamState("keyer.wpm"), []byte("25"))
package mqtt
