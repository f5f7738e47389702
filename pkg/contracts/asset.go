package contracts

import "fmt"

// AssetClass names the four families of game assets that can be committed on-chain.
type AssetClass string

const (
	AssetClassResource  AssetClass = "resource"
	AssetClassCoin      AssetClass = "coin"
	AssetClassItem      AssetClass = "item"
	AssetClassCharacter AssetClass = "character"
)

// AllAssetClasses lists every supported class in a stable order.
var AllAssetClasses = []AssetClass{
	AssetClassResource,
	AssetClassCoin,
	AssetClassItem,
	AssetClassCharacter,
}

// AssetKind is the ledger representation of a class.
type AssetKind string

const (
	// KindFungible ledgers hold interchangeable quantities keyed by a token id.
	KindFungible AssetKind = "fungible"
	// KindNonFungible ledgers hold uniquely identified, enumerable instances.
	KindNonFungible AssetKind = "non_fungible"
)

// Kind returns the ledger representation used by the class.
func (c AssetClass) Kind() AssetKind {
	switch c {
	case AssetClassItem, AssetClassCharacter:
		return KindNonFungible
	default:
		return KindFungible
	}
}

// Valid reports whether c is one of the supported classes.
func (c AssetClass) Valid() bool {
	for _, known := range AllAssetClasses {
		if c == known {
			return true
		}
	}
	return false
}

// ParseAssetClass maps an inbound class name to an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	c := AssetClass(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown asset class %q", s)
	}
	return c, nil
}

// Action is the state change requested on the ledger.
type Action string

const (
	ActionMint   Action = "mint"
	ActionBurn   Action = "burn"
	ActionModify Action = "modify"
)

// Valid reports whether a is a supported action.
func (a Action) Valid() bool {
	return a == ActionMint || a == ActionBurn || a == ActionModify
}

// ParseAction maps an inbound action name to an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}
