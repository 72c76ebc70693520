package nve

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/couchcryptid/hazard-data-service/internal/domain"
)

// BodyKind records which wire format a response used.
type BodyKind int

const (
	KindJSON BodyKind = iota + 1
	KindXML
)

func (k BodyKind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindXML:
		return "xml"
	default:
		return "unknown"
	}
}

// Body is a parsed response: the records as field maps, whatever the format.
// Single marks a lone JSON object wrapped as a one-item list.
type Body struct {
	Kind   BodyKind
	Items  []domain.Fields
	Single bool
}

const (
	warningElement = "AvalancheWarningSimple"
	warningList    = "ArrayOf" + warningElement
)

var (
	errEmptyBody  = errors.New("empty body")
	errNoRecords  = errors.New("no " + warningElement + " elements")
	errNotObjects = errors.New("json is not an object or array of objects")
	errNotList    = errors.New("json object where a list was expected")
)

// requireList rejects a lone JSON object. The avalanche API answers an
// unsupported route with 200 and an error object, which must not pass as a
// one-record forecast.
func requireList(b Body) error {
	if b.Single {
		return errNotList
	}
	return nil
}

// ParseBody sniffs the trimmed text: '[' or '{' is JSON, anything else is
// treated as XML and scanned for AvalancheWarningSimple elements. A single
// JSON object becomes a one-item list.
func ParseBody(text string) (Body, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Body{}, errEmptyBody
	}

	switch text[0] {
	case '[':
		var raw []any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return Body{}, err
		}
		items := make([]domain.Fields, 0, len(raw))
		for _, v := range raw {
			if m, ok := v.(map[string]any); ok {
				items = append(items, domain.Fields(m))
			}
		}
		return Body{Kind: KindJSON, Items: items}, nil
	case '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			return Body{}, err
		}
		if obj == nil {
			return Body{}, errNotObjects
		}
		return Body{Kind: KindJSON, Items: []domain.Fields{obj}, Single: true}, nil
	default:
		items, err := parseWarningXML(text)
		if err != nil {
			return Body{}, err
		}
		return Body{Kind: KindXML, Items: items}, nil
	}
}

// simpleWarningXML lists the child elements kept from an XML warning. Pointer
// fields distinguish absent elements from empty ones.
type simpleWarningXML struct {
	RegionID        *string `xml:"RegionId"`
	RegionName      *string `xml:"RegionName"`
	ValidFrom       *string `xml:"ValidFrom"`
	ValidFromUtc    *string `xml:"ValidFromUtc"`
	ValidTo         *string `xml:"ValidTo"`
	PublishTime     *string `xml:"PublishTime"`
	NextWarningTime *string `xml:"NextWarningTime"`
	DangerLevel     *string `xml:"DangerLevel"`
	DangerLevelTmw  *string `xml:"DangerLevelTmw"`
	MainText        *string `xml:"MainText"`
}

func (w simpleWarningXML) fields() domain.Fields {
	f := domain.Fields{}
	set := func(key string, v *string) {
		if v != nil {
			f[key] = strings.TrimSpace(*v)
		}
	}
	set("RegionId", w.RegionID)
	set("RegionName", w.RegionName)
	set("ValidFrom", w.ValidFrom)
	set("ValidFromUtc", w.ValidFromUtc)
	set("ValidTo", w.ValidTo)
	set("Published", w.PublishTime)
	set("NextWarningTime", w.NextWarningTime)
	set("DangerLevel", w.DangerLevel)
	set("DangerLevelTmw", w.DangerLevelTmw)
	set("MainText", w.MainText)
	return f
}

// parseWarningXML collects every AvalancheWarningSimple element, matching by
// local name so namespaced documents work. An empty ArrayOf... root is a
// valid empty result; any other document without records is an error.
func parseWarningXML(text string) ([]domain.Fields, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	var (
		items []domain.Fields
		root  string
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root == "" {
			root = start.Name.Local
		}
		if start.Name.Local != warningElement {
			continue
		}
		var w simpleWarningXML
		if err := dec.DecodeElement(&w, &start); err != nil {
			return nil, err
		}
		items = append(items, w.fields())
	}

	if len(items) == 0 && root != warningList {
		return nil, errNoRecords
	}
	return items, nil
}
