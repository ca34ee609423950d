// Package protocol implements the CHIRP wire format.
//
// CHIRP (Constellation Host Identification and Reconnaissance Protocol) is
// a service-discovery protocol over UDP broadcast. Every CHIRP message is a
// fixed 42-byte datagram:
//
//	[0-5]   magic        ASCII "CHIRP" + version byte 0x01
//	[6]     type         1=REQUEST, 2=OFFER, 3=LEAVING
//	[7-22]  group hash   MD5 of the group name
//	[23-38] name hash    MD5 of the node name
//	[39]    service id   byte-encoded service identifier
//	[40-41] port         TCP port, network byte order
//
// Group and node names are never transmitted in cleartext; only their MD5
// fingerprints appear on the wire. Receivers filter on the group hash to
// isolate logical groups sharing a broadcast domain, and on the name hash
// to suppress their own looped-back broadcasts.
//
// # Message Types
//
//   - OFFER announces a service hosted by the sender.
//   - LEAVING announces that an offered service is going away.
//   - REQUEST asks group members to re-send OFFERs for a service
//     identifier. REQUEST carries port 0 by convention, but parsers accept
//     any port value.
//
// # Usage
//
//	msg := protocol.Message{
//	    Type:      protocol.TypeOffer,
//	    GroupHash: protocol.HashName("edda"),
//	    NameHash:  protocol.HashName("gro"),
//	    ServiceID: protocol.ServiceData,
//	    Port:      5555,
//	}
//	wire := protocol.Assemble(msg)
//
//	parsed, err := protocol.Parse(wire[:])
//
// Parse returns *DecodeError for anything that is not a well-formed CHIRP
// datagram of a supported version. Assemble and Parse are stateless and
// safe for concurrent use.
package protocol
