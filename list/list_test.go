package list_test

import (
	"strings"
	"testing"

	"github.com/gissleh/irctrack/isupport"
	"github.com/gissleh/irctrack/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(l *list.List) string {
	nicks := make([]string, 0, l.Len())
	for _, member := range l.Members() {
		nicks = append(nicks, member.PrefixedNick)
	}

	return strings.Join(nicks, ", ")
}

func TestList(t *testing.T) {
	is := isupport.New(nil)

	table := []struct {
		namestoken   string
		shouldInsert bool
		entry        list.NamesEntry
		order        string
	}{
		{
			"@+Test!~test@example.com", true,
			list.NamesEntry{Nick: "Test", User: "~test", Host: "example.com", Modes: "ov", Prefixes: "@+"},
			"@Test",
		},
		{
			"+@Test2!~test2@example.com", true,
			list.NamesEntry{Nick: "Test2", User: "~test2", Host: "example.com", Modes: "vo", Prefixes: "+@"},
			"@Test, @Test2",
		},
		{
			"+Gissleh", true,
			list.NamesEntry{Nick: "Gissleh", Modes: "v", Prefixes: "+"},
			"@Test, @Test2, +Gissleh",
		},
		{
			"Guest!~guest@10.72.3.15", true,
			list.NamesEntry{Nick: "Guest", User: "~guest", Host: "10.72.3.15"},
			"@Test, @Test2, +Gissleh, Guest",
		},
		{
			"@AOP!actualIdent@10.32.8.174", true,
			list.NamesEntry{Nick: "AOP", User: "actualIdent", Host: "10.32.8.174", Modes: "o", Prefixes: "@"},
			"@AOP, @Test, @Test2, +Gissleh, Guest",
		},
		{
			"@ZOP!actualIdent@10.32.8.174", true,
			list.NamesEntry{Nick: "ZOP", User: "actualIdent", Host: "10.32.8.174", Modes: "o", Prefixes: "@"},
			"@AOP, @Test, @Test2, @ZOP, +Gissleh, Guest",
		},
		{
			"+ZVoice!~zv@10.32.8.174", true,
			list.NamesEntry{Nick: "ZVoice", User: "~zv", Host: "10.32.8.174", Modes: "v", Prefixes: "+"},
			"@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest",
		},
		{
			"+zvoice!~zv@10.32.8.174", false,
			list.NamesEntry{Nick: "zvoice", User: "~zv", Host: "10.32.8.174", Modes: "v", Prefixes: "+"},
			"@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest",
		},
	}

	l := list.New(is)

	for _, row := range table {
		t.Run("Insert_"+row.namestoken, func(t *testing.T) {
			entry := list.ParseNamesToken(is, row.namestoken)
			assert.Equal(t, row.entry, entry)

			assert.Equal(t, row.shouldInsert, l.Insert(entry.Nick, entry.Modes))
			assert.Equal(t, row.order, order(l))
		})
	}

	modeTable := []struct {
		add   bool
		mode  rune
		nick  string
		ok    bool
		order string
	}{
		{true, 'o', "Gissleh", true, "@AOP, @Gissleh, @Test, @Test2, @ZOP, +ZVoice, Guest"},
		{false, 'o', "Gissleh", true, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest"},
		{true, 'o', "InvalidNick", false, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest"},
		{true, 'v', "AOP", true, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest"},
		{true, 'v', "guest", true, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +Guest, +ZVoice"},
		{false, 'v', "Guest", true, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest"},
		{true, 'b', "Guest", false, "@AOP, @Test, @Test2, @ZOP, +Gissleh, +ZVoice, Guest"},
	}

	for _, row := range modeTable {
		t.Run("Mode_"+row.nick+"_"+string(row.mode), func(t *testing.T) {
			var ok bool
			if row.add {
				ok = l.AddMode(row.nick, row.mode)
			} else {
				ok = l.RemoveMode(row.nick, row.mode)
			}

			assert.Equal(t, row.ok, ok)
			assert.Equal(t, row.order, order(l))
		})
	}

	t.Run("Rename", func(t *testing.T) {
		assert.True(t, l.Rename("zop", "BOP"))
		assert.False(t, l.Rename("BOP", "aop"))
		assert.False(t, l.Rename("Nobody", "Somebody"))
		assert.Equal(t, "@AOP, @BOP, @Test, @Test2, +Gissleh, +ZVoice, Guest", order(l))

		member, ok := l.Member("bop")
		require.True(t, ok)
		assert.Equal(t, "BOP", member.Nick)
		assert.False(t, l.Has("ZOP"))
	})

	t.Run("Remove", func(t *testing.T) {
		assert.True(t, l.Remove("test2"))
		assert.False(t, l.Remove("test2"))
		assert.Equal(t, "@AOP, @BOP, @Test, +Gissleh, +ZVoice, Guest", order(l))
	})

	t.Run("Clear", func(t *testing.T) {
		l.Clear()
		assert.Equal(t, 0, l.Len())
		assert.False(t, l.Has("AOP"))
	})
}

func TestList_CaseMapping(t *testing.T) {
	is := isupport.New(nil)
	l := list.New(is)

	l.Set("Nick[away]", "")
	assert.True(t, l.Has("nick{AWAY}"))

	require.NoError(t, is.Set("CASEMAPPING=ascii"))
	l.Reindex()

	assert.False(t, l.Has("nick{AWAY}"))
	assert.True(t, l.Has("NICK[AWAY]"))
}

func TestList_PrefixChange(t *testing.T) {
	is := isupport.New(nil)
	l := list.New(is)

	l.Set("Op", "o")
	require.NoError(t, is.Set("PREFIX=(qov)~@+"))
	l.Set("Owner", "q")
	l.Reindex()

	assert.Equal(t, "~Owner, @Op", order(l))
}

func TestList_SetAutoSort(t *testing.T) {
	is := isupport.New(nil)
	l := list.New(is)

	l.SetAutoSort(false)
	l.Set("Zed", "")
	l.Set("Voiced", "v")
	l.Set("Op", "o")
	assert.Equal(t, "Zed, +Voiced, @Op", order(l))

	l.SetAutoSort(true)
	assert.Equal(t, "@Op, +Voiced, Zed", order(l))

	l.Set("Admin", "o")
	assert.Equal(t, "@Admin, @Op, +Voiced, Zed", order(l))
}
