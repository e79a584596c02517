// Package archive provides the raw entry streams the dataset pipeline reads
// from: zip archives, unpacked directory trees and in-memory entries.
//
// An Entry carries its name and a way to open its content; nothing is read
// until Open is called, so buffering stages can hold entries cheaply.
package archive
