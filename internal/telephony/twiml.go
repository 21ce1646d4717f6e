package telephony

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	complianceNotice = "This call may be recorded for compliance purposes"
	handoffNotice    = "Connecting with the scheduling agent"
)

// OutgoingCallTwiML builds the voice response document for an answered
// outbound call: a compliance notice, a short pause, then a media-stream
// connection back to this service.
func OutgoingCallTwiML(host string) (string, error) {
	streamURL, err := xmlEscape(fmt.Sprintf("wss://%s/media-stream", host))
	if err != nil {
		return "", fmt.Errorf("failed to build TwiML: %w", err)
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<Response>")
	b.WriteString("<Say>" + complianceNotice + "</Say>")
	b.WriteString(`<Pause length="1"/>`)
	b.WriteString("<Say>" + handoffNotice + "</Say>")
	b.WriteString(`<Connect><Stream url="` + streamURL + `"/></Connect>`)
	b.WriteString("</Response>")
	return b.String(), nil
}

func xmlEscape(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
