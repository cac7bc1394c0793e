// Package watchlist persists the (username, site) pairs the daemon monitors.
//
// The list lives in a small SQLite database under the state directory so add
// and remove survive restarts. ImportJSON reads the legacy
// {"streamers":[{"username":..,"site":..}]} file format.
package watchlist
