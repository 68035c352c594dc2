package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeStringMapTrimsKeysAndValues(t *testing.T) {
	input := map[string]string{
		" site_title ":  " To You ",
		"greeting_text": " Hello ",
		"blank_value":   " ",
		" ":             "ignored",
		"":              "ignored",
	}
	expected := map[string]string{
		"site_title":    "To You",
		"greeting_text": "Hello",
		"blank_value":   "",
	}

	actual := NormalizeStringMap(input)
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("expected %#v got %#v", expected, actual)
	}
}

func TestNormalizeStringMapCollapsesWindowsLineEndings(t *testing.T) {
	actual := NormalizeStringMap(map[string]string{
		"letter_body": "Dear you,\r\n\r\nHappy birthday.\r\n",
	})
	want := "Dear you,\n\nHappy birthday."
	if actual["letter_body"] != want {
		t.Fatalf("letter_body = %q, want %q", actual["letter_body"], want)
	}
}

func TestNormalizeStringMapReturnsNilWhenNothingSurvives(t *testing.T) {
	if NormalizeStringMap(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	if NormalizeStringMap(map[string]string{" ": "x"}) != nil {
		t.Fatal("expected nil when every key is blank")
	}
}
