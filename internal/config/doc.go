// Package config stores the user's device registry: the MAC addresses, last
// known IPs and nicknames of HPA4911 bridges the CLI should register with the
// network client on startup.
//
// The registry lives at the platform config dir (e.g.
// ~/.config/hpa4911/config.yaml) and is written atomically. The network core
// deliberately persists nothing itself; this package is host-application
// glue.
package config
