// Package mcs implements client side of Mobile Connection Server protocol,
// the persistent socket channel of GCM/FCM push delivery.
//
// Wire format of one frame:
//
//	[version byte, first frame of each direction only] tag byte, varint(len), protobuf body
//
// Tag is an index into a fixed table of 16 message kinds, see Tag.
package mcs
