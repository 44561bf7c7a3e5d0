package dexscreener

// Pair is one trading pair as returned by /latest/dex/tokens
type Pair struct {
	ChainID       string     `json:"chainId"`
	DexID         string     `json:"dexId"`
	URL           string     `json:"url"`
	PairAddress   string     `json:"pairAddress"`
	BaseToken     Token      `json:"baseToken"`
	QuoteToken    Token      `json:"quoteToken"`
	PriceNative   string     `json:"priceNative"`
	PriceUSD      string     `json:"priceUsd"`
	Txns          Txns       `json:"txns"`
	Volume        Windows    `json:"volume"`
	PriceChange   Windows    `json:"priceChange"`
	Liquidity     *Liquidity `json:"liquidity"` // absent for some pools
	Fdv           float64    `json:"fdv"`
	MarketCap     float64    `json:"marketCap"`
	PairCreatedAt int64      `json:"pairCreatedAt"` // unix millis
	Info          *PairInfo  `json:"info"`
}

// Token identifies one side of a pair
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is the pool depth
type Liquidity struct {
	USD   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// Txns holds transaction counts per window
type Txns struct {
	M5  TxnCount `json:"m5"`
	H1  TxnCount `json:"h1"`
	H6  TxnCount `json:"h6"`
	H24 TxnCount `json:"h24"`
}

// TxnCount is a buy/sell count for one window
type TxnCount struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Windows holds a value per time window (volume in USD, price change in %)
type Windows struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PairInfo is optional project metadata
type PairInfo struct {
	ImageURL string    `json:"imageUrl"`
	Websites []Website `json:"websites"`
	Socials  []Social  `json:"socials"`
}

// Website is a project link
type Website struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Social is a project social account
type Social struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// LiquidityUSD returns the pool liquidity or 0 when unknown
func (p Pair) LiquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

// TokensResponse wraps the /latest/dex/tokens response
type TokensResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Boost is one entry of /token-boosts/top/v1
type Boost struct {
	URL          string  `json:"url"`
	ChainID      string  `json:"chainId"`
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`
	TotalAmount  float64 `json:"totalAmount"`
	Icon         string  `json:"icon"`
	Description  string  `json:"description"`
}
