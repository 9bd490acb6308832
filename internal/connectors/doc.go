// Package connectors holds adapters that observe where source papers live.
// The filesystem connector watches the papers directory so extraction can
// pick up new files without a restart.
package connectors
