package scode

// Resolve finds the concrete file name for a (sourceName, packageName,
// language) triple. It is a pure function of atlas and its arguments: no
// mutation, safe for concurrent use.
//
// Resolution order:
//  1. If packageName exists in atlas, scan its items in stored order and
//     return the first one whose SourceName matches and whose LanguageTag is
//     either NoLanguage or language.
//  2. Otherwise (or if no item matched within the package), scan every
//     package in atlas insertion order and apply the same rule.
//  3. If nothing matches, ok is false.
func Resolve(atlas *Atlas, sourceName, packageName, language string) (fileName string, ok bool) {
	if atlas.has(packageName) {
		if fn, found := resolveWithin(atlas.Items(packageName), sourceName, language); found {
			return fn, true
		}
	}

	for _, pkg := range atlas.Packages() {
		if pkg == packageName {
			continue
		}

		if fn, found := resolveWithin(atlas.Items(pkg), sourceName, language); found {
			return fn, true
		}
	}

	return "", false
}

func resolveWithin(items []AtlasItem, sourceName, language string) (string, bool) {
	for _, it := range items {
		if it.SourceName != sourceName {
			continue
		}

		if it.LanguageTag == NoLanguage || it.LanguageTag == language {
			return it.FileName, true
		}
	}

	return "", false
}
