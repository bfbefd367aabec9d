package directory

import "github.com/matheus3301/huddle/internal/chat"

// Builtin returns the directory used when no file is configured.
func Builtin() *Directory {
	return New([]chat.UserRef{
		{Name: "Aarav Sharma", Email: "aarav.sharma@contoso.com"},
		{Name: "Alice Doe", Email: "alice.doe@contoso.com"},
		{Name: "Bob Ray", Email: "bob.ray@contoso.com"},
		{Name: "Carlos Mendes", Email: "carlos.mendes@contoso.com"},
		{Name: "Diana Prince", Email: "diana.prince@contoso.com"},
		{Name: "Emeka Obi", Email: "emeka.obi@contoso.com"},
		{Name: "Fatima Khan", Email: "fatima.khan@contoso.com"},
		{Name: "Grace Lin", Email: "grace.lin@contoso.com"},
		{Name: "Hiro Tanaka", Email: "hiro.tanaka@contoso.com"},
		{Name: "Isabel Ortiz", Email: "isabel.ortiz@contoso.com"},
		{Name: "Jonas Weber", Email: "jonas.weber@fabrikam.com"},
		{Name: "Kavya Reddy", Email: "kavya.reddy@fabrikam.com"},
		{Name: "Liam O'Brien", Email: "liam.obrien@fabrikam.com"},
		{Name: "Maya Cohen", Email: "maya.cohen@fabrikam.com"},
		{Name: "Noah Smith", Email: "noah.smith@fabrikam.com"},
	})
}
