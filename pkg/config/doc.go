/*
Package config persists dropzone's settings and rules in a single document.

	            +-------------+
	            |  Document   |
	            | (Settings + |
	            |   Rules)    |
	            +------+------+
	                   |
	      +-----------+-----------+-----------+
	      |           |           |           |
	+-----+----+ +----+----+ +----+----+ +----+----+
	|   YAML   | |  JSON   | |   HCL   | |   env   |
	|  Codec   | |  Codec  | |  Codec  | | overlay |
	+----------+ +---------+ +---------+ +---------+

🎯 Purpose:
- Loads and saves the document through a format chosen by file extension
- Validates settings and rules before they reach the watcher
- Overlays DROPZONE_* environment variables on stored settings

🔄 Flow:
1. FileStore reads the document (missing file means defaults)
2. The codec for the extension decodes it over the defaults
3. The document is validated; an unreadable one is copied to .bak
4. Writes go through a temp file and a rename

🤝 Interfaces:
- Codec: format-specific decode and encode
- rules.Persister: implemented by FileStore

🔍 Example:

	store := config.NewFileStore(config.DefaultPath())
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return err
	}

	settings, err = settings.Apply(config.WithMaxRetries(5))
	if err != nil {
		return err
	}
	return store.SaveSettings(ctx, settings)
*/
package config
