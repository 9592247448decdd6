package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	type VenueConfig struct {
		APIKey string `json:"apiKey" jsonschema:"title=API Key,description=Venue API key" validate:"required"`
		Depth  int    `json:"depth,omitempty" jsonschema:"title=Depth,minimum=0,default=5"`
	}

	raw, err := ToJSONSchema(VenueConfig{})
	suite.Require().NoError(err)

	var document map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(raw), &document))

	properties, ok := document["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "apiKey")
	suite.Contains(properties, "depth")
	suite.Equal("API Key", properties["apiKey"].(map[string]any)["title"])
	suite.Equal([]any{"apiKey"}, document["required"])
}
