package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Token is the login response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// Profile is the signed-in employee as returned by /auth/mypage.
type Profile struct {
	EmpNumber string `json:"emp_number"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// SignupRequest is the body of /auth/signup.
type SignupRequest struct {
	EmpNumber string `json:"emp_number"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	EmpNumber string `json:"emp_number"`
	Password  string `json:"password"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// TrafficStats is the cumulative traffic counter.
type TrafficStats struct {
	TotalPackets        int64  `json:"total_packets"`
	TotalBytes          int64  `json:"total_bytes"`
	LastSecondPackets   int64  `json:"last_second_packets"`
	LastSecondBytes     int64  `json:"last_second_bytes"`
	LatestDataTimestamp string `json:"latest_data_timestamp"`
}

// TrafficOverTime is a series of per-second samples. The slices are parallel
// but the server may send them with different lengths.
type TrafficOverTime struct {
	Timestamps       []string  `json:"timestamps"`
	PacketsPerSecond []float64 `json:"packets_per_second"`
	BytesPerSecond   []float64 `json:"bytes_per_second"`
}

// Port is a destination port. The server sends it as a number or a string.
type Port string

// UnmarshalJSON accepts both JSON numbers and strings.
func (p *Port) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Port(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Port(n.String())
	return nil
}

// PortCount is one row of the top-ports chart.
type PortCount struct {
	Port  Port  `json:"port"`
	Count int64 `json:"count"`
}

// Attack is one detected attack flow.
type Attack struct {
	Timestamp     string  `json:"timestamp"`
	SrcIP         string  `json:"src_ip"`
	DstPort       int     `json:"dst_port"`
	Protocol      int     `json:"protocol"`
	FlowPktsPerS  float64 `json:"flow_pkts_per_s"`
	FlowBytesPerS float64 `json:"flow_byts_per_s"`
}

// Attacks is the attack list response.
type Attacks struct {
	List         []Attack `json:"attacks_list"`
	CountAllTime int      `json:"count_all_time"`
}

// ThreatShare is one slice of the threat distribution.
type ThreatShare struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// LogStats summarizes detected system-log threats.
type LogStats struct {
	TotalThreats  int           `json:"total_threats"`
	TopThreatType string        `json:"top_threat_type"`
	Distribution  []ThreatShare `json:"distribution"`
}

type logCount struct {
	Count int64 `json:"log_count_24h"`
}

// ThreatLog is one row of the threat log list. Null fields decode as "".
type ThreatLog struct {
	DetectedAt    string `json:"detected_at"`
	AttackType    string `json:"attack_type"`
	SourceAddress string `json:"source_address"`
	Hostname      string `json:"hostname"`
	ProcessName   string `json:"process_name"`
}

// String renders p for display.
func (p Port) String() string { return string(p) }

// Int returns the numeric port, or 0 when p is not a number.
func (p Port) Int() int {
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 0
	}
	return n
}
