package signatures

// Observe classifies one blob path against the set and returns the flags it
// earned, in signature order. The ignore list is consulted first: the first
// matching ignore rule short-circuits the whole blob with no flags, even for
// signatures that would otherwise match
func (s *Set) Observe(blobPath string) []Flag {
	for _, r := range s.ignore {
		if matches(r.Kind, r.Pattern, r.re, PartValue(blobPath, r.Part)) {
			return nil
		}
	}
	var flags []Flag
	for _, sig := range s.sigs {
		if matches(sig.Kind, sig.Pattern, sig.re, PartValue(blobPath, sig.Part)) {
			flags = append(flags, Flag{Caption: sig.Caption, Description: sig.Description})
		}
	}
	return flags
}
