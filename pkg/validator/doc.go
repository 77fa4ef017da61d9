// Package validator provides rule-based validation with translatable errors.
//
// Rules can be built in code and applied directly:
//
//	err := validator.Apply(
//	    validator.RequiredString("email", form.Email),
//	    validator.MinLenString("password", form.Password, 8),
//	)
//
// Or declared as rule strings against request input:
//
//	v := validator.New(input, validator.RuleSet{
//	    "name":  "required|alpha|max:32",
//	    "email": "required|email",
//	})
//	if v.Fails() {
//	    bag := v.Errors().Bag()
//	}
package validator
