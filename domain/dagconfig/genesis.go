package dagconfig

import (
	"github.com/iotaledger/bee-sub004/domain/tangle/model/externalapi"
)

// rootSolidEntryPoint is the parent of the first blocks of a fresh
// tangle. It is a solid entry point at index 0 and has no body.
var rootSolidEntryPoint = externalapi.EmptyBlockID

// devnetCoordinatorPublicKey is the x coordinate of the secp256k1
// generator point.
var devnetCoordinatorPublicKey = CoordinatorPublicKey{
	0x79, 0xbe, 0x66, 0x7e, 0xf9, 0xdc, 0xbb, 0xac,
	0x55, 0xa0, 0x62, 0x95, 0xce, 0x87, 0x0b, 0x07,
	0x02, 0x9b, 0xfc, 0xdb, 0x2d, 0xce, 0x28, 0xd9,
	0x59, 0xf2, 0x81, 0x5b, 0x16, 0xf8, 0x17, 0x98,
}
