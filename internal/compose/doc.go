// SPDX-License-Identifier: MPL-2.0

// Package compose models the multi-service deployment descriptor (a compose file) that
// launchpad rewrites while provisioning a development stack.
//
// A Descriptor is backed by a yaml.v3 node tree rather than typed structs so that keys
// launchpad never touches (build sections, healthchecks, networks, comments) survive a
// Load/Dump round-trip byte for byte, and service insertion order is preserved.
//
// The descriptor may carry a top-level "x-launchpad" extension:
//
//	x-launchpad:
//	  required: [engine, db]            # baseline services that survive every filter
//	  environment:                      # variables owned by optional services
//	    solr: [SOLR_DSN, SEARCH_ENGINE]
//	  initialize:
//	    keep-volumes: [/var/www/html/project]
//	    drop-environment: [SYMFONY_ENV]
//
// Transformations that are not meant to be permanent must run on a Clone. CleanForInitialize
// clones internally and never mutates its receiver.
package compose
