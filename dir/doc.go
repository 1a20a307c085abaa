// Package dir defines the directory capability.
//
// Readdir returns a lazy iterator. Stopping early is cheap and the cookie
// on the last consumed Entity resumes the listing on a later call:
//
//	for ent, err := range d.Readdir(ctx, cookie) {
//	    if err != nil {
//	        return err
//	    }
//	    if !fits(ent) {
//	        break
//	    }
//	    cookie = ent.Next
//	}
package dir
