// Package config loads the derivable configuration file.
//
// The configuration is stored in derivable.json (or derivable.yaml) in the
// working directory or one of its parents. Command line flags override the
// file.
//
// # Configuration File Structure
//
//	{
//	  "inspector": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "seed": "atoms.yaml"
//	  },
//	  "runtime": {
//	    "debug": false
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "derivable"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "derivable"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Log.NewLogger(os.Stderr)
package config
