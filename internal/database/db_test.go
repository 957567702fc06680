package database

import "testing"

func TestConnectionParamsDSN(t *testing.T) {
	tests := []struct {
		name   string
		params ConnectionParams
		want   string
	}{
		{
			name:   "explicit ssl mode",
			params: ConnectionParams{Host: "db", Port: "5432", User: "bot", Password: "pw", DBName: "bittrader", SSLMode: "require"},
			want:   "host=db port=5432 user=bot password=pw dbname=bittrader sslmode=require",
		},
		{
			name:   "ssl mode defaults to disable",
			params: ConnectionParams{Host: "localhost", Port: "5433", User: "u", Password: "", DBName: "d"},
			want:   "host=localhost port=5433 user=u password= dbname=d sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNullString(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Errorf("nullString(\"\") is valid")
	}
	if ns := nullString("abc"); !ns.Valid || ns.String != "abc" {
		t.Errorf("nullString(\"abc\") = %+v", ns)
	}
}
