// internal/render/xml.go
//
// Mozilla clientConfig v1.1 document.
//
// Context
// -------
// Thunderbird, K-9, FairEmail, and Evolution all fetch
// `config-v1.1.xml` and expect this shape:
//
//	<clientConfig version="1.1">
//	  <emailProvider id="…">
//	    <domain>…</domain>…
//	    <displayName>…</displayName>
//	    <displayShortName>…</displayShortName>
//	    <incomingServer type="imap">
//	      <hostname/> <port/> <socketType/> <username/> <authentication/>…
//	    </incomingServer>
//	    <outgoingServer type="smtp"> … </outgoingServer>
//	  </emailProvider>
//	</clientConfig>
//
// Display names are omitted when empty.  The provider id falls back to
// “provider”.
package render

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"github.com/yanizio/autoconfig/internal/autoconfig"
)

// ContentType is the media type served with the document.
const ContentType = "application/xml"

// DefaultProviderID is used when the configuration sets no id.
const DefaultProviderID = "provider"

type clientConfig struct {
	XMLName  xml.Name      `xml:"clientConfig"`
	Version  string        `xml:"version,attr"`
	Provider emailProvider `xml:"emailProvider"`
}

type emailProvider struct {
	ID               string   `xml:"id,attr"`
	Domains          []string `xml:"domain"`
	DisplayName      string   `xml:"displayName,omitempty"`
	DisplayShortName string   `xml:"displayShortName,omitempty"`
	Incoming         server   `xml:"incomingServer"`
	Outgoing         server   `xml:"outgoingServer"`
}

type server struct {
	Type           string   `xml:"type,attr"`
	Hostname       string   `xml:"hostname"`
	Port           string   `xml:"port"`
	SocketType     string   `xml:"socketType"`
	Username       string   `xml:"username"`
	Authentication []string `xml:"authentication"`
}

// XML renders ctx as an indented clientConfig document.
func XML(ctx *autoconfig.Context) ([]byte, error) {
	id := ctx.ID
	if id == "" {
		id = DefaultProviderID
	}
	doc := clientConfig{
		Version: "1.1",
		Provider: emailProvider{
			ID:               id,
			Domains:          ctx.Domains,
			DisplayName:      ctx.NameDisplay,
			DisplayShortName: ctx.NameShort,
			Incoming:         serverFrom(ctx.InServer),
			Outgoing:         serverFrom(ctx.OutServer),
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func serverFrom(s autoconfig.MailServer) server {
	return server{
		Type:           s.ServerType,
		Hostname:       s.Host,
		Port:           strconv.Itoa(s.Port),
		SocketType:     s.SocketType,
		Username:       s.User,
		Authentication: s.Auth,
	}
}
