package registry

import "github.com/ethereum/go-ethereum/common"

// DefaultDecimals is assumed for tokens that declare no precision.
const DefaultDecimals = 18

var (
	tokenA = Token{Symbol: "TKNA", Name: "Token A", Address: common.HexToAddress("0x694B9d20Ee80e474C69F7eC66904C591b9C41454"), Decimals: 18}
	tokenB = Token{Symbol: "TKNB", Name: "Token B", Address: common.HexToAddress("0x9294e1900C507EFF9f957Dbb48D3FF80649FF6Ae"), Decimals: 18}
	tokenC = Token{Symbol: "TKNC", Name: "Token C", Address: common.HexToAddress("0x5288a1798A3DC0E90Ff608011fE029C6Ef693b63"), Decimals: 18}
	tokenD = Token{Symbol: "TKND", Name: "Token D", Address: common.HexToAddress("0x395A2A16b873d6E902e31F1e2B913A41B2e8cF95"), Decimals: 18}
	tokenE = Token{Symbol: "TKNE", Name: "Token E", Address: common.HexToAddress("0x34E116748b003841786cBe90911e1F8ad7b8e55e"), Decimals: 18}
)

// Default returns the built-in pool set used when no pools file is given.
func Default() *Registry {
	reg, err := New([]Pool{
		{ID: 1, Address: common.HexToAddress("0x147dD1C3554DCB733E4aa549c7B57c2A55A873b0"), Token0: tokenA, Token1: tokenB},
		{ID: 2, Address: common.HexToAddress("0x5639de257975674e82339ca481bEFecA8e468f22"), Token0: tokenB, Token1: tokenC},
		{ID: 3, Address: common.HexToAddress("0xAe389Cccdb1772acB8C8C8fD2ABC32157B1ec5aD"), Token0: tokenC, Token1: tokenD},
		{ID: 4, Address: common.HexToAddress("0xE469dA5800b4404B4C2F8205Ed356DcCE9C8Aaeb"), Token0: tokenD, Token1: tokenE},
		{ID: 5, Address: common.HexToAddress("0x9765E5ED4E6194f9c429bf5079a0bE135b152182"), Token0: tokenE, Token1: tokenA},
	})
	if err != nil {
		// The built-in set is validated by tests; New can only fail on it
		// if the table above is edited into an inconsistent state.
		panic(err)
	}
	return reg
}
