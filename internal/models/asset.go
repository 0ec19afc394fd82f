// internal/models/asset.go
package models

import "strings"

// Asset is a canonical, whitelisted asset symbol.
type Asset string

const (
	AssetSUI   Asset = "SUI"
	AssetUSDC  Asset = "USDC"
	AssetUSDT  Asset = "USDT"
	AssetCETUS Asset = "CETUS"
	AssetWETH  Asset = "WETH"
)

// Assets is the whitelist in display order.
var Assets = []Asset{AssetSUI, AssetUSDC, AssetUSDT, AssetCETUS, AssetWETH}

func IsWhitelisted(symbol string) bool {
	_, ok := ParseAsset(symbol)
	return ok
}

// ParseAsset accepts an exact symbol in any letter case.
func ParseAsset(symbol string) (Asset, bool) {
	upper := Asset(strings.ToUpper(strings.TrimSpace(symbol)))
	for _, a := range Assets {
		if a == upper {
			return a, true
		}
	}
	return "", false
}

func AssetSymbols() []string {
	out := make([]string, len(Assets))
	for i, a := range Assets {
		out[i] = string(a)
	}
	return out
}
