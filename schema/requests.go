package schema

// RunRequest is an immutable description of one run.
type RunRequest struct {
	Language   Language
	Files      map[string]string
	ActiveFile string
}

// Source returns the text of the active file.
func (r RunRequest) Source() string {
	return r.Files[r.ActiveFile]
}

// Validate checks the language and that the active file keys into Files.
func (r RunRequest) Validate() error {
	if !r.Language.Valid() {
		return ErrInvalidLanguage
	}
	if r.ActiveFile == "" {
		return ErrInvalidRequest
	}
	if _, ok := r.Files[r.ActiveFile]; !ok {
		return ErrInvalidRequest
	}
	return nil
}

// ShellRequest is one line typed into an interactive shell.
type ShellRequest struct {
	Language Language
	Input    string
}
