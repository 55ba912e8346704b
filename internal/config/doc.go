// Package config loads the settings of the incremental command.
//
// Settings live in incremental.json or incremental.yaml in the working
// directory. Missing fields fall back to defaults, and INCREMENTAL_*
// environment variables override both.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "runtime": {
//	    "callbackBudget": 64
//	  },
//	  "demo": {
//	    "frames": 8,
//	    "step": 10,
//	    "interval": "250ms"
//	  },
//	  "inspect": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "history": 256
//	  },
//	  "export": {
//	    "target": "./journal.json",
//	    "region": "us-east-1"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "serviceName": "incremental"
//	  }
//	}
//
// # Environment Overrides
//
//	INCREMENTAL_LOG_LEVEL        log.level
//	INCREMENTAL_LOG_FORMAT       log.format
//	INCREMENTAL_CALLBACK_BUDGET  runtime.callbackBudget
//	INCREMENTAL_INSPECT_HOST     inspect.host
//	INCREMENTAL_INSPECT_PORT     inspect.port
//	INCREMENTAL_EXPORT_TARGET    export.target
//	INCREMENTAL_EXPORT_REGION    export.region
//	INCREMENTAL_TRACING          tracing.enabled
package config
