package schema

// Language selects the execution strategy and starter project for a run.
type Language string

const (
	// LanguageJavaScript runs in the sandboxed script worker.
	LanguageJavaScript Language = "javascript"
	// LanguageReact renders a component preview document.
	LanguageReact Language = "react"
	// LanguageNodeJS is simulated remotely and has an interactive shell.
	LanguageNodeJS Language = "nodejs"
	// LanguageMongoDB is simulated remotely and has a local shell fast path.
	LanguageMongoDB Language = "mongodb"
	// LanguagePython is simulated remotely.
	LanguagePython Language = "python"
	// LanguageJava is simulated remotely.
	LanguageJava Language = "java"
	// LanguageCPP is simulated remotely.
	LanguageCPP Language = "cpp"
)

// Languages lists every supported language in display order.
var Languages = []Language{
	LanguageJavaScript,
	LanguageReact,
	LanguageNodeJS,
	LanguageMongoDB,
	LanguagePython,
	LanguageJava,
	LanguageCPP,
}

// LanguageInfo describes presentation details for a language.
type LanguageInfo struct {
	Label           string
	Extension       string
	DefaultFilename string
	Shell           bool
	Formattable     bool
}

var languageInfo = map[Language]LanguageInfo{
	LanguageJavaScript: {Label: "JavaScript", Extension: "js", DefaultFilename: "main.js", Formattable: true},
	LanguageReact:      {Label: "React", Extension: "jsx", DefaultFilename: "App.jsx", Formattable: true},
	LanguageNodeJS:     {Label: "Node.js", Extension: "js", DefaultFilename: "index.js", Shell: true, Formattable: true},
	LanguageMongoDB:    {Label: "MongoDB", Extension: "js", DefaultFilename: "query.js", Shell: true, Formattable: true},
	LanguagePython:     {Label: "Python", Extension: "py", DefaultFilename: "main.py"},
	LanguageJava:       {Label: "Java", Extension: "java", DefaultFilename: "Main.java"},
	LanguageCPP:        {Label: "C++", Extension: "cpp", DefaultFilename: "main.cpp"},
}

// Info returns the presentation details for the language.
func (l Language) Info() LanguageInfo {
	return languageInfo[l]
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := languageInfo[l]
	return ok
}

// Label returns the display name, or the raw value for unknown languages.
func (l Language) Label() string {
	if info, ok := languageInfo[l]; ok {
		return info.Label
	}
	return string(l)
}

// DefaultFilename returns the entry point file name for a fresh project.
func (l Language) DefaultFilename() string {
	if info, ok := languageInfo[l]; ok {
		return info.DefaultFilename
	}
	return "main.txt"
}

// HasShell reports whether the language offers an interactive shell.
func (l Language) HasShell() bool {
	return languageInfo[l].Shell
}

// Formattable reports whether the code formatter supports the language.
func (l Language) Formattable() bool {
	return languageInfo[l].Formattable
}
