package gateio

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"strconv"
)

// sign computes the APIv4 signature:
//
//	hex(HMAC-SHA512(secret, method\npath\nquery\nhex(SHA512(body))\ntimestamp))
func sign(secret, method, path, query string, body []byte, ts int64) string {
	bodyHash := sha512.Sum512(body)
	payload := method + "\n" + path + "\n" + query + "\n" + hex.EncodeToString(bodyHash[:]) + "\n" + strconv.FormatInt(ts, 10)

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) signRequest(req *http.Request, body []byte) {
	ts := c.now().Unix()
	req.Header.Set("KEY", c.key)
	req.Header.Set("Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("SIGN", sign(c.secret, req.Method, req.URL.Path, req.URL.RawQuery, body, ts))
}

