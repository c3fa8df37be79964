package models

// ProxySettings holds optional outbound proxy configuration for upstream calls.
type ProxySettings struct {
	HTTPProxy  string `json:"httpProxy,omitempty" bson:"httpProxy,omitempty"`
	HTTPSProxy string `json:"httpsProxy,omitempty" bson:"httpsProxy,omitempty"`
}

// ConnectionSettings identifies the upstream Responses endpoint and
// credentials. Assembled from configuration and vault secrets at startup;
// never persisted with the API key in the clear.
type ConnectionSettings struct {
	BaseURL string         `json:"baseUrl" bson:"baseUrl"`
	APIKey  string         `json:"apiKey" bson:"apiKey"`
	Proxy   *ProxySettings `json:"proxy,omitempty" bson:"proxy,omitempty"`
}
