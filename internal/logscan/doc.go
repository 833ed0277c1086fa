// Package logscan extracts the summary lines from a Sikraken session log.
//
// Sikraken writes a session log next to its generated tests. Only a handful
// of lines are interesting to an operator: the results header, the ECLiPSe
// CPU time, and the generation timestamp. A Scanner echoes those lines,
// byte for byte and in file order, and ignores everything else.
//
// The default pattern set needs no regular expressions; a plain
// contains/prefix test covers it. Regexp patterns are available for
// configured extras, and compiling them is the only way building a
// Matcher can fail.
package logscan
