// Package nml reads and writes Traktor collection files (collection.nml).
//
// The package does not know anything about tracks or cues. It wraps an
// etree document with the settings and helpers needed to write the file
// back out so that elements and attributes this program never touches
// survive a round trip unchanged.
//
// # Parsing
//
//	doc, err := nml.Parse(file)
//	if err != nil {
//	    return err
//	}
//	collection := nml.Child(doc.Root(), "COLLECTION")
//	for _, entry := range nml.Children(collection, "ENTRY") {
//	    file, _ := nml.Attr(nml.Child(entry, "LOCATION"), "FILE")
//	    fmt.Println(file)
//	}
//
// # Writing
//
//	var buf bytes.Buffer
//	if err := doc.Encode(&buf); err != nil {
//	    return err
//	}
//
// The XML declaration and comments are kept as read. Whitespace between
// elements, including the final newline, is preserved in place. Empty
// elements keep the closing style the file mostly uses.
package nml
