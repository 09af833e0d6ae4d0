package fiskal_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/jhoicas/Fiskalizacija-api/pkg/fiskal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharsetReader_ISO88592(t *testing.T) {
	// "Greška" con š = 0xB9 en ISO-8859-2
	raw := "<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?><m>Gre\xb9ka</m>"
	var v struct {
		Text string `xml:",chardata"`
	}
	dec := xml.NewDecoder(strings.NewReader(raw))
	dec.CharsetReader = fiskal.CharsetReader
	require.NoError(t, dec.Decode(&v))
	assert.Equal(t, "Greška", v.Text)
}

func TestCharsetReader_Desconocido(t *testing.T) {
	_, err := fiskal.CharsetReader("koi8-r", strings.NewReader("x"))
	assert.Error(t, err)
}
