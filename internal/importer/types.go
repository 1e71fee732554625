package importer

import "encoding/base64"

// Wire shapes for the Postman collection format.

type postmanCollection struct {
	Info struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Schema      string `json:"schema"`
	} `json:"info"`
	Item []postmanItem `json:"item"`
}

type postmanItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Item        []postmanItem   `json:"item"`
	Request     *postmanRequest `json:"request"`
}

type postmanRequest struct {
	Method      string          `json:"method"`
	URL         interface{}     `json:"url"`
	Description string          `json:"description"`
	Header      []postmanHeader `json:"header"`
	Body        *postmanBody    `json:"body"`
	Auth        *postmanAuth    `json:"auth"`
}

type postmanHeader struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

type postmanBody struct {
	Mode       string              `json:"mode"`
	Raw        string              `json:"raw"`
	URLEncoded []postmanKV         `json:"urlencoded"`
	GraphQL    *postmanGraphQL     `json:"graphql"`
	Options    *postmanBodyOptions `json:"options"`
}

type postmanBodyOptions struct {
	Raw *struct {
		Language string `json:"language"`
	} `json:"raw"`
}

type postmanGraphQL struct {
	Query     string `json:"query"`
	Variables string `json:"variables"`
}

type postmanKV struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

type postmanAuth struct {
	Type   string      `json:"type"`
	Bearer []postmanKV `json:"bearer"`
	Basic  []postmanKV `json:"basic"`
}

func basicCredentials(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
