package dexi

import (
	"encoding/xml"

	"github.com/danielpatrickdp/dexi-engine/internal/model"
)

// #region model
// Model is a loaded DEXi model: its metadata and the built attribute tree.
type Model struct {
	Name        string
	Description []string
	Linking     bool
	Tree        *model.Tree
}
// #endregion model

// #region xml
type xmlDocument struct {
	XMLName     xml.Name
	Name        string         `xml:"NAME"`
	Description xmlLines       `xml:"DESCRIPTION"`
	Settings    xmlSettings    `xml:"SETTINGS"`
	Attributes  []xmlAttribute `xml:"ATTRIBUTE"`
}

type xmlLines struct {
	Lines []string `xml:"LINE"`
}

type xmlSettings struct {
	Linking string `xml:"LINKING"`
}

type xmlAttribute struct {
	Name        *string        `xml:"NAME"`
	Description string         `xml:"DESCRIPTION"`
	Scale       *xmlScale      `xml:"SCALE"`
	Function    *xmlFunction   `xml:"FUNCTION"`
	Attributes  []xmlAttribute `xml:"ATTRIBUTE"`
}

type xmlScale struct {
	Values []xmlScaleValue `xml:"SCALEVALUE"`
}

type xmlScaleValue struct {
	Name        *string `xml:"NAME"`
	Description string  `xml:"DESCRIPTION"`
	Group       string  `xml:"GROUP"`
	Inner       string  `xml:",innerxml"`
}

type xmlFunction struct {
	Low     string  `xml:"LOW"`
	High    *string `xml:"HIGH"`
	Entered *string `xml:"ENTERED"`
}
// #endregion xml
