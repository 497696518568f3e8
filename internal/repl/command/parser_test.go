package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []Token
	}{
		{
			name:     "empty",
			line:     "",
			expected: nil,
		},
		{
			name: "plain words",
			line: "show -s MyLogin",
			expected: []Token{
				{Value: "show", Start: 0, End: 4},
				{Value: "-s", Start: 5, End: 7},
				{Value: "MyLogin", Start: 8, End: 15},
			},
		},
		{
			name: "double quoted",
			line: `cd "My Group"`,
			expected: []Token{
				{Value: "cd", Start: 0, End: 2},
				{Value: "My Group", Start: 3, End: 13},
			},
		},
		{
			name: "escaped space",
			line: `ls My\ Site`,
			expected: []Token{
				{Value: "ls", Start: 0, End: 2},
				{Value: "My Site", Start: 3, End: 11},
			},
		},
		{
			name: "parameter stays literal",
			line: `show $HOME '$x'`,
			expected: []Token{
				{Value: "show", Start: 0, End: 4},
				{Value: "$HOME", Start: 5, End: 10},
				{Value: "$x", Start: 11, End: 15},
			},
		},
		{
			name: "tilde stays literal",
			line: `open ~/db.kdbx`,
			expected: []Token{
				{Value: "open", Start: 0, End: 4},
				{Value: "~/db.kdbx", Start: 5, End: 14},
			},
		},
		{
			name: "braced and arithmetic expansions stay as typed",
			line: `show ${x} ${x:-y} $((1+2)) $((1/0))`,
			expected: []Token{
				{Value: "show", Start: 0, End: 4},
				{Value: "${x}", Start: 5, End: 9},
				{Value: "${x:-y}", Start: 10, End: 17},
				{Value: "$((1+2))", Start: 18, End: 26},
				{Value: "$((1/0))", Start: 27, End: 35},
			},
		},
		{
			name: "expansion inside double quotes stays as typed",
			line: `show "a ${x} \$b \q"`,
			expected: []Token{
				{Value: "show", Start: 0, End: 4},
				{Value: `a ${x} $b \q`, Start: 5, End: 20},
			},
		},
		{
			name: "mixed quoting in one word",
			line: `cd My' 'Gr"oup"\!`,
			expected: []Token{
				{Value: "cd", Start: 0, End: 2},
				{Value: "My Group!", Start: 3, End: 17},
			},
		},
		{
			name: "extra whitespace",
			line: "  ls   Work ",
			expected: []Token{
				{Value: "ls", Start: 2, End: 4},
				{Value: "Work", Start: 7, End: 11},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokens)
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, line := range []string{
		`show "MyLogin`,
		`ls 'Work`,
		`show $(whoami)`,
		"show `whoami`",
		`ls <(x)`,
		`show >(x)`,
		`show "a$(b)"`,
		`show ${x:-$(y)}`,
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Tokenize(line)
			var gerr *GrammarError
			require.ErrorAs(t, err, &gerr)
			assert.Contains(t, gerr.Message, "invalid syntax")
		})
	}
}

func TestParse(t *testing.T) {
	g := Default()

	tests := []struct {
		line     string
		expected Command
	}{
		{"ls", ListDir{}},
		{"ls Work/Projects", ListDir{Path: "Work/Projects"}},
		{"cd ..", ChangeDir{Path: ".."}},
		{"show MyLogin", Show{Entry: "MyLogin"}},
		{"show -s MyLogin", Show{Entry: "MyLogin", ShowHidden: true}},
		{"show MyLogin --show-hidden", Show{Entry: "MyLogin", ShowHidden: true}},
		{"show --totp -s 'My Login'", Show{Entry: "My Login", ShowHidden: true, TOTP: true}},
		{"show -- -s", Show{Entry: "-s"}},
		{"show MyLogin -s", Show{Entry: "MyLogin", ShowHidden: true}},
		{"show -s --totp -- --totp", Show{Entry: "--totp", ShowHidden: true, TOTP: true}},
		{"show -", Show{Entry: "-"}},
		{"show ${x}", Show{Entry: "${x}"}},
		{"cp MyLogin", Copy{Entry: "MyLogin", Field: FieldPassword}},
		{"cu MyLogin", Copy{Entry: "MyLogin", Field: FieldUserName}},
		{"cw MyLogin", Copy{Entry: "MyLogin", Field: FieldURL}},
		{"cx", ClearClipboard{}},
		{"open db.kdbx", Open{Path: "db.kdbx"}},
		{"open db.kdbx ''", Open{Path: "db.kdbx", HasPassword: true}},
		{"open db.kdbx hunter2", Open{Path: "db.kdbx", Password: "hunter2", HasPassword: true}},
		{"close", Close{}},
		{"pwd", PrintWorkingGroup{}},
		{"help", Help{}},
		{"help show", Help{Topic: "show"}},
		{"history", History{}},
		{"exit", Exit{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := g.Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cmd)
		})
	}
}

func TestParseBlankLine(t *testing.T) {
	g := Default()

	for _, line := range []string{"", "   ", "\t"} {
		cmd, err := g.Parse(line)
		assert.NoError(t, err)
		assert.Nil(t, cmd)
	}
}

func TestParseErrors(t *testing.T) {
	g := Default()

	tests := []struct {
		line    string
		token   string
		message string
	}{
		{"frobnicate", "frobnicate", "unknown command `frobnicate`"},
		{"show", "", "missing required argument <entry>"},
		{"show -x MyLogin", "-x", "unknown shorthand flag: 'x' in -x"},
		{"show -sx MyLogin", "-sx", "unknown shorthand flag: 'x' in -sx"},
		{"show --nope MyLogin", "--nope", "unknown flag: --nope"},
		{"show -h MyLogin", "-h", "unknown flag `-h`"},
		{"show --help MyLogin", "--help", "unknown flag `--help`"},
		{"show -s=yes MyLogin", "-s=yes", "does not take a value"},
		{"show -ss MyLogin", "-ss", "given more than once"},
		{"show --totp=yes MyLogin", "--totp=yes", "does not take a value"},
		{"show -s -s MyLogin", "-s", "given more than once"},
		{"show -s --show-hidden MyLogin", "--show-hidden", "given more than once"},
		{"show MyLogin MySite", "MySite", "unexpected argument `MySite`"},
		{"cx now", "now", "unexpected argument `now`"},
		{"ls -l", "-l", "unknown shorthand flag: 'l'"},
		{"open", "", "missing required argument <file>"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := g.Parse(tt.line)
			var gerr *GrammarError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.token, gerr.Token)
			assert.Contains(t, gerr.Error(), tt.message)
		})
	}
}

func TestParseIsPure(t *testing.T) {
	g := Default()

	first, err := g.Parse("show -s MyLogin")
	require.NoError(t, err)
	second, err := g.Parse("show -s MyLogin")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate(t *testing.T) {
	g := Default()

	assert.NoError(t, g.Validate(""))
	assert.NoError(t, g.Validate("cd Work"))
	assert.Error(t, g.Validate("cd Work Projects"))
	assert.Error(t, g.Validate(`cd "Work`))
	assert.Error(t, g.Validate("ls <(x)"))
	assert.Error(t, g.Validate("ls >(x)"))
}
