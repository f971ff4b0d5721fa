package launch

import (
	"encoding/xml"
	"fmt"
)

// cartridge is the IMS basic launch descriptor document served at
// /config.xml. Consumers import it to learn the tool's title and launch
// URL.
type cartridge struct {
	XMLName xml.Name `xml:"cartridge_basiclti_link"`
	Xmlns   string   `xml:"xmlns,attr"`
	Blti    string   `xml:"xmlns:blti,attr"`
	Lticm   string   `xml:"xmlns:lticm,attr"`
	Lticp   string   `xml:"xmlns:lticp,attr"`

	Title           string `xml:"blti:title"`
	Description     string `xml:"blti:description,omitempty"`
	LaunchURL       string `xml:"blti:launch_url"`
	SecureLaunchURL string `xml:"blti:secure_launch_url"`
}

// Descriptor renders the configuration descriptor XML for the given
// absolute launch URL.
func Descriptor(cfg Config, launchURL string) ([]byte, error) {
	doc := cartridge{
		Xmlns: "http://www.imsglobal.org/xsd/imslticc_v1p0",
		Blti:  "http://www.imsglobal.org/xsd/imsbasiclti_v1p0",
		Lticm: "http://www.imsglobal.org/xsd/imslticm_v1p0",
		Lticp: "http://www.imsglobal.org/xsd/imslticp_v1p0",

		Title:           cfg.Title,
		Description:     cfg.Description,
		LaunchURL:       launchURL,
		SecureLaunchURL: launchURL,
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("launch: descriptor: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
