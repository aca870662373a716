// Package config provides configuration management for refillpool.
//
// # Key Features
//
// - PoolConfig: single structure describing a pool and the tooling around it
// - Structured sections: Pool, Retry, Logging, Metrics, Simulation
// - Environment variable substitution with ${VAR_NAME} syntax
// - Defaults for every field a file leaves out, followed by validation
//
// # Usage
//
//	cfg, err := config.Load("pool.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	bp, err := bufpool.NewBufferPool(cfg.Pool.Capacity, cfg.Pool.LowWaterMark, cfg.Pool.BufferSize)
//
// # Example YAML
//
//	name: audio-buffers
//	pool:
//	  capacity: 64
//	  low_water_mark: 16
//	  buffer_size: ${BUFFER_SIZE}
//	retry:
//	  initial: 10ms
//	  max: 1s
//	logging:
//	  level: debug
//	metrics:
//	  enabled: true
//	  address: ":9090"
package config
