package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/effective-security/x/ctl"
	"github.com/effective-security/x/guid"
	"github.com/stretchr/testify/suite"
)

const csrTestdata = "../../../csr/testdata"

type testSuite struct {
	suite.Suite

	appFlags []string
	tmpdir   string

	ctl *Cli
	// Out is the outpub buffer
	Out bytes.Buffer
}

func (s *testSuite) SetupSuite() {
	s.tmpdir = filepath.Join(os.TempDir(), "csr-tool-"+guid.MustCreate())
	s.Require().NoError(os.MkdirAll(s.tmpdir, 0755))
}

func (s *testSuite) TearDownSuite() {
	_ = os.RemoveAll(s.tmpdir)
}

func (s *testSuite) SetupTest() {
	s.Out.Reset()
	s.ctl = &Cli{}

	s.ctl.WithErrWriter(&s.Out).
		WithWriter(&s.Out).
		WithReader(strings.NewReader(""))

	parser, err := kong.New(s.ctl,
		kong.Name("csr-tool"),
		kong.Description("PKCS#10 certificate request tool"),
		kong.Writers(&s.Out, &s.Out),
		ctl.BoolPtrMapper,
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{})
	if err != nil {
		s.FailNow("unexpected error constructing Kong: %+v", err)
	}

	_, err = parser.Parse(s.appFlags)
	if err != nil {
		s.FailNow("unexpected error parsing: %+v", err)
	}
}

// HasText is a helper method to assert that the out stream contains the supplied
// text somewhere
func (s *testSuite) HasText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.Contains(outStr, t)
	}
}

// HasNoText is a helper method to assert that the out stream does not contain
// the supplied text
func (s *testSuite) HasNoText(texts ...string) {
	outStr := s.Out.String()
	for _, t := range texts {
		s.NotContains(outStr, t)
	}
}

// HasTextInFile is a helper method to assert that the file contains the supplied text
func (s *testSuite) HasTextInFile(file string, texts ...string) {
	b, err := os.ReadFile(file)
	s.Require().NoError(err)
	for _, t := range texts {
		s.Contains(string(b), t)
	}
}
