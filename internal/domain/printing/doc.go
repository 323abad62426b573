// Package printing contains the print dispatch domain model: the PrintJob
// aggregate with its lifecycle state machine, the Printer configuration it
// targets, and the enums shared across the rendering and delivery layers.
package printing
