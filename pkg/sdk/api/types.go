package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ConnectWalletRequest is the login payload. The device/geo metadata fields
// are static browser fingerprint values; the service does not validate them
// strictly but rejects requests that omit them.
type ConnectWalletRequest struct {
	Address       string  `json:"address"`
	DeviceID      string  `json:"deviceId"`
	DeviceSource  string  `json:"deviceSource"`
	DeviceType    string  `json:"deviceType"`
	Browser       string  `json:"browser"`
	IPAddress     string  `json:"ipAddress"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	CountryCode   string  `json:"countryCode"`
	Country       string  `json:"country"`
	Continent     string  `json:"continent"`
	ContinentCode string  `json:"continentCode"`
	Region        string  `json:"region"`
	RegionCode    string  `json:"regionCode"`
	City          string  `json:"city"`
}

// ConnectWalletResponse is the login response. isSocialExists carries the
// account's verification state ("VERIFIED" / "PENDING").
type ConnectWalletResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		UserID         json.Number `json:"userId"`
		IsSocialExists string      `json:"isSocialExists"`
	} `json:"data"`
}

// RegisterRequest completes onboarding for a PENDING account.
type RegisterRequest struct {
	UserID        string `json:"userId"`
	WalletAddress string `json:"walletAddress"`
	SocialHandle  string `json:"socialHandle"`
	ReferralCode  string `json:"referralCode"`
}

// RegisterResponse is the registration result.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BalanceResponse is the cookie-authenticated balance lookup result.
type BalanceResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Balance decimal.Decimal `json:"balance"`
	} `json:"data"`
}

// FundWalletResponse is the daily claim result. On failure the server puts
// the reason into Message (rate limit / daily limit / generic error text).
type FundWalletResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		FundedAmount decimal.Decimal `json:"fundedAmount"`
	} `json:"data"`
}

// TransferRequest moves funds to another wallet. Amount is sent as a plain
// JSON number because that is what the service expects.
type TransferRequest struct {
	ToAddress string  `json:"toAddress"`
	Amount    float64 `json:"amount"`
	UserID    string  `json:"userId"`
}

// TransferResponse is the transfer result.
type TransferResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		TransferData struct {
			Hash string `json:"hash"`
		} `json:"transferData"`
	} `json:"data"`
}
